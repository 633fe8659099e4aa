package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/errresponse"
)

// Payload is the response payload for a Profile. Render fills the computed
// fields.
type Payload struct {
	*Profile

	CurrentRole *Experience `json:"currentRole,omitempty"`
	SkillCount  int         `json:"skillCount"`
}

func NewPayload(p *Profile) *Payload {
	return &Payload{Profile: p}
}

func (p *Payload) Render(w http.ResponseWriter, r *http.Request) error {
	p.CurrentRole = nil
	for i := range p.Experiences {
		if p.Experiences[i].Current() {
			p.CurrentRole = &p.Experiences[i]

			break
		}
	}

	p.SkillCount = 0
	for _, g := range p.Skills {
		p.SkillCount += len(g.Items)
	}

	return nil
}

type Handler struct {
	profile *Profile
	logger  *zap.SugaredLogger
}

func NewHandler(p *Profile, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Handler{profile: p, logger: logger}
}

// Routes mounts GET / returning the profile as JSON.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)

	return r
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if err := render.Render(w, r, NewPayload(h.profile)); err != nil {
		if err = render.Render(w, r, errresponse.ErrRender(err)); err != nil {
			h.logger.Errorw("render error response", "path", r.URL.Path, "error", err)
		}
	}
}
