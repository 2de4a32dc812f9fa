package service

import (
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/internal/domain/presentation"
)

// Screen is everything the operator display shows, rebuilt by the engine
// loop after each event.
type Screen struct {
	Mode          model.Mode
	Live          bool
	Device        string
	State         model.State
	Panel         *presentation.View
	Pending       bool
	ManualEnabled bool
	Notice        string
	PresentCount  int
	Recent        []model.CheckIn
}

// Renderer draws screens. Render is called from the engine loop and must
// not block.
type Renderer interface {
	Render(s Screen)
}

type nopRenderer struct{}

func (nopRenderer) Render(Screen) {}
