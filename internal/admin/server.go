package admin

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"clocksim/internal/config"
	"clocksim/internal/watch"
)

//go:embed templates/index.html
var content embed.FS

// Server exposes a read-only status page for a running trial. The VMs
// are separate processes, so everything shown here comes from their
// log files via the tracker.
type Server struct {
	Tracker *watch.Tracker
	Cfg     *config.ClusterConfig
	tpl     *template.Template
}

func NewServer(tracker *watch.Tracker, cfg *config.ClusterConfig) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{Tracker: tracker, Cfg: cfg, tpl: tpl}
}

func (s *Server) routes() {
	http.HandleFunc("/", s.handleIndex)
	http.HandleFunc("/status", s.handleStatus)
}

func (s *Server) Start(addr string) error {
	s.routes()
	return http.ListenAndServe(addr, nil)
}

// snapshot refreshes the tracker before reading it, so the page stays
// live even when no TUI is polling.
func (s *Server) snapshot() []watch.VMStatus {
	s.Tracker.Poll()
	return s.Tracker.Snapshot()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Nodes    int
		Trials   int
		Statuses []watch.VMStatus
		Now      string
	}{
		Nodes:    len(s.Cfg.Nodes),
		Trials:   s.Cfg.Trials,
		Statuses: s.snapshot(),
		Now:      time.Now().Format(time.RFC3339),
	}
	s.tpl.Execute(w, data)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.snapshot())
}
