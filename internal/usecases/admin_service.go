package usecases

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"homework-forwarder/internal/config"
	"homework-forwarder/internal/entities"
	"homework-forwarder/internal/repository"
)

// AdminService exposes the operator hooks: route mutation, config reload and
// activity queries. Each method maps directly onto a RouteTable or
// ActivityStore operation; the HTTP layer stays thin.
type AdminService struct {
	Routes   *repository.RouteTable
	Store    *repository.ActivityStore
	Pipeline *ForwardPipeline

	started time.Time
}

func NewAdminService(routes *repository.RouteTable, store *repository.ActivityStore, pipeline *ForwardPipeline) *AdminService {
	return &AdminService{
		Routes:   routes,
		Store:    store,
		Pipeline: pipeline,
		started:  time.Now(),
	}
}

// AddRoute registers a route and trusts the source from now on.
func (s *AdminService) AddRoute(source, dest int64) error {
	if err := s.Routes.Add(source, dest); err != nil {
		return err
	}
	s.Pipeline.AllowSource(source)
	log.Info().Int64("source", source).Int64("destination", dest).Msg("route added")
	return nil
}

func (s *AdminService) RemoveRoute(source int64) error {
	if err := s.Routes.Remove(source); err != nil {
		return err
	}
	log.Info().Int64("source", source).Msg("route removed")
	return nil
}

func (s *AdminService) ListRoutes() map[int64][]int64 {
	return s.Routes.Snapshot()
}

// Reload re-parses the environment configuration and atomically swaps the
// route table and allow-list. Returns the number of routed sources.
func (s *AdminService) Reload() (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return 0, fmt.Errorf("reload config: %w", err)
	}
	if err := s.Routes.ReloadFrom(cfg.Routes); err != nil {
		return 0, fmt.Errorf("reload routes: %w", err)
	}
	s.Pipeline.SetAllowedSources(cfg.AllowedSources)
	log.Info().Int("routes", s.Routes.Len()).Msg("config reloaded")
	return s.Routes.Len(), nil
}

// Summary formats the forwards of the trailing window, newest window first.
func (s *AdminService) Summary(window time.Duration) string {
	entries := s.Store.QuerySince(window)
	if len(entries) == 0 {
		return fmt.Sprintf("No homework forwarded in the last %s.", formatWindow(window))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 %d forward(s) in the last %s:\n", len(entries), formatWindow(window))
	for _, e := range entries {
		fmt.Fprintf(&sb, "• %s — %s (%s)", e.Timestamp.Format("Mon 15:04"), e.SenderName, e.MediaType)
		if e.Snippet != "" {
			fmt.Fprintf(&sb, ": %s", e.Snippet)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (s *AdminService) ClearLog() {
	s.Store.Clear()
	log.Info().Msg("forward log cleared")
}

func (s *AdminService) Senders() []entities.SenderActivity {
	return s.Store.ListSenders()
}

func (s *AdminService) ClearSenders() {
	s.Store.ClearSenders()
	log.Info().Msg("sender activity cleared")
}

// Status is the health snapshot behind the /status hook.
type Status struct {
	Uptime     string `json:"uptime"`
	Routes     int    `json:"routes"`
	LogEntries int    `json:"log_entries"`
}

func (s *AdminService) Status() Status {
	return Status{
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Routes:     s.Routes.Len(),
		LogEntries: s.Store.Count(),
	}
}

func formatWindow(d time.Duration) string {
	if days := int(d.Hours() / 24); days >= 1 {
		return fmt.Sprintf("%d day(s)", days)
	}
	return d.String()
}
