package usecase

import (
	"bytes"
	"context"
	"text/template"
	"time"

	"github.com/shandysiswandi/geotoken/internal/pkg/clock"
	"github.com/shandysiswandi/geotoken/internal/pkg/config"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/mail"
	"github.com/shandysiswandi/geotoken/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxRetries = 3
	defaultRetryBase  = 500 * time.Millisecond

	otpSubject = "Your OTP Code"
	otpBody    = "Your OTP is: {{ .Code }}\n\nIt expires in {{ .Minutes }} minutes.\n"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoMail  repoMail
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
	otpTpl    *template.Template
	retryBase time.Duration
}

type Dependency struct {
	RepoMail   repoMail
	Config     config.Config
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:  dep.RepoMail,
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
		otpTpl:    template.Must(template.New("otp").Parse(otpBody)),
		retryBase: defaultRetryBase,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) maxRetries() uint64 {
	if v := s.cfg.GetUint64("modules.notification.max_retries"); v > 0 {
		return v
	}
	return defaultMaxRetries
}

func (s *Usecase) render(tpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
