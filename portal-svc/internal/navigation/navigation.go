package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"manjok-portal/portal-svc/internal/domain"
)

const Placeholder = "준비 중입니다..."

var ErrUnknownTab = errors.New("unknown tab")

type Tab struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var portalTabs = map[domain.Role][]Tab{
	domain.RoleClient: {
		{ID: "restaurant", Label: "식당"},
		{ID: "wishlist", Label: "찜"},
		{ID: "cart", Label: "장바구니"},
		{ID: "orders", Label: "주문정보"},
		{ID: "profile", Label: "사용자 정보"},
		{ID: "qna", Label: "Q&A"},
		{ID: "payment", Label: "결제 테스트"},
	},
	domain.RoleOwner: {
		{ID: "my-restaurant", Label: "내 식당"},
		{ID: "payments", Label: "결제 정보"},
		{ID: "profile", Label: "사용자 정보"},
	},
	domain.RoleAdmin: {
		{ID: "restaurants", Label: "식당정보"},
		{ID: "clients", Label: "클라이언트정보"},
		{ID: "owners", Label: "오너정보"},
		{ID: "statistics", Label: "통계정보"},
	},
}

// TabsFor returns a copy of the role's tab list, default tab first.
func TabsFor(role domain.Role) []Tab {
	tabs := portalTabs[role]
	out := make([]Tab, len(tabs))
	copy(out, tabs)
	return out
}

// Loader produces the data shown for a tab.
type Loader func(ctx context.Context) (any, error)

type View struct {
	Tab         Tab  `json:"tab"`
	Data        any  `json:"data,omitempty"`
	Placeholder bool `json:"placeholder,omitempty"`
}

type MenuEntry struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
	Badge  int    `json:"badge,omitempty"`
}

// Navigator tracks the active tab of one portal. State lives only here,
// never in the URL.
type Navigator struct {
	mu      sync.RWMutex
	tabs    []Tab
	current int
	loaders map[string]Loader
}

func New(role domain.Role) *Navigator {
	return &Navigator{tabs: TabsFor(role), loaders: make(map[string]Loader)}
}

func (n *Navigator) Register(tabID string, loader Loader) {
	n.mu.Lock()
	n.loaders[tabID] = loader
	n.mu.Unlock()
}

func (n *Navigator) Select(tabID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, t := range n.tabs {
		if t.ID == tabID {
			n.current = i
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTab, tabID)
}

func (n *Navigator) Current() Tab {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.tabs) == 0 {
		return Tab{}
	}
	return n.tabs[n.current]
}

// Render loads the active tab. Tabs without a loader render the placeholder.
func (n *Navigator) Render(ctx context.Context) (View, error) {
	tab := n.Current()

	n.mu.RLock()
	loader := n.loaders[tab.ID]
	n.mu.RUnlock()

	if loader == nil {
		return View{Tab: tab, Data: Placeholder, Placeholder: true}, nil
	}
	data, err := loader(ctx)
	if err != nil {
		return View{Tab: tab}, err
	}
	return View{Tab: tab, Data: data}, nil
}

func (n *Navigator) Menu(badges map[string]int) []MenuEntry {
	current := n.Current()

	n.mu.RLock()
	defer n.mu.RUnlock()

	entries := make([]MenuEntry, 0, len(n.tabs))
	for _, t := range n.tabs {
		entries = append(entries, MenuEntry{
			ID:     t.ID,
			Label:  t.Label,
			Active: t.ID == current.ID,
			Badge:  badges[t.ID],
		})
	}
	return entries
}
