// Package state holds the process wide handles shared by every request: the template store
// and the database store. A State is built once at startup and passed by pointer.
package state

import (
	"errors"

	"github.com/wolfeidau/sensordash/internal/store"
	"github.com/wolfeidau/sensordash/internal/templates"
	"github.com/wolfeidau/sensordash/internal/transport"
)

type State struct {
	templates *templates.Store
	store     store.Store
	mode      transport.Mode
}

func New(tpl *templates.Store, st store.Store, mode transport.Mode) (*State, error) {
	if tpl == nil {
		return nil, errors.New("template store is required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if mode == "" {
		mode = transport.DefaultMode()
	}

	return &State{templates: tpl, store: st, mode: mode}, nil
}

func (s *State) Templates() *templates.Store { return s.templates }

func (s *State) Store() store.Store { return s.store }

func (s *State) Mode() transport.Mode { return s.mode }

func (s *State) Dev() bool { return s.mode == transport.Development }

// RenderPage renders a full page. In development the templates are reloaded from disk first
// so edits show up without a restart; a reload failure is returned as a *templates.ParseError
// and the previously loaded set stays in place.
func (s *State) RenderPage(name string, data templates.Context) (string, error) {
	if s.Dev() {
		if err := s.templates.Reload(); err != nil {
			return "", err
		}
	}

	return s.templates.Render(name, data)
}
