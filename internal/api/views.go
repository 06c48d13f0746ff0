// ABOUTME: JSON views of storage entities for API responses
// ABOUTME: Public views omit owner-only fields like password hashes and doc ids

package api

import (
	"time"

	"github.com/faqmy/faqmy-server/internal/store"
)

type userView struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	IsActive    bool    `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
	IsVerified  bool    `json:"is_verified"`
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
}

func viewUser(u *store.User) userView {
	return userView{
		ID:          u.ID,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		IsVerified:  u.IsVerified,
		Name:        u.Name,
		Phone:       u.Phone,
	}
}

type stackView struct {
	ID              string    `json:"id"`
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	SpecialOffer    *string   `json:"special_offer"`
	InitialQuestion *string   `json:"initial_question"`
	WidgetDelay     int       `json:"widget_delay"`
	Color           string    `json:"color"`
	CreatedAt       time.Time `json:"created_at"`
}

func viewStack(st *store.Stack) stackView {
	return stackView{
		ID:              st.ID,
		Name:            st.Name,
		Description:     st.Description,
		SpecialOffer:    st.SpecialOffer,
		InitialQuestion: st.InitialQuestion,
		WidgetDelay:     st.WidgetDelay,
		Color:           st.Color,
		CreatedAt:       st.CreatedAt,
	}
}

func viewStacks(stacks []*store.Stack) []stackView {
	views := make([]stackView, len(stacks))
	for i, st := range stacks {
		views[i] = viewStack(st)
	}
	return views
}

// stackPublicView is the widget-facing subset of a stack: enough to
// render the chat bubble, nothing about the owner.
type stackPublicView struct {
	ID              string  `json:"id"`
	InitialQuestion *string `json:"initial_question"`
	WidgetDelay     int     `json:"widget_delay"`
	Color           string  `json:"color"`
}

func viewStackPublic(st *store.Stack) stackPublicView {
	return stackPublicView{
		ID:              st.ID,
		InitialQuestion: st.InitialQuestion,
		WidgetDelay:     st.WidgetDelay,
		Color:           st.Color,
	}
}

type conversationView struct {
	ID       string `json:"id"`
	StackID  string `json:"stack_id"`
	Password string `json:"password"`
}

func viewConversation(c *store.Conversation) conversationView {
	return conversationView{ID: c.ID, StackID: c.StackID, Password: c.Password}
}

// conversationDashboardView nests the owning stack so the dashboard
// can label conversations without extra round trips.
type conversationDashboardView struct {
	ID        string    `json:"id"`
	Stack     stackView `json:"stack"`
	CreatedAt time.Time `json:"created_at"`
}

type messageView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Who       string    `json:"who"`
	ParentID  *string   `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
}

func viewMessage(m *store.Message) messageView {
	return messageView{
		ID:        m.ID,
		Text:      m.Text,
		Who:       string(m.Who),
		ParentID:  m.ParentID,
		CreatedAt: m.CreatedAt,
	}
}

func viewMessages(msgs []*store.Message) []messageView {
	views := make([]messageView, len(msgs))
	for i, m := range msgs {
		views[i] = viewMessage(m)
	}
	return views
}

type cardView struct {
	ID        string    `json:"id"`
	StackID   string    `json:"stack_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Learned   bool      `json:"learned"`
	CreatedAt time.Time `json:"created_at"`
}

func viewCard(c *store.Card) cardView {
	return cardView{
		ID:        c.ID,
		StackID:   c.StackID,
		Question:  c.Question,
		Answer:    c.Answer,
		Learned:   c.Learned,
		CreatedAt: c.CreatedAt,
	}
}

func viewCards(cards []*store.Card) []cardView {
	views := make([]cardView, len(cards))
	for i, c := range cards {
		views[i] = viewCard(c)
	}
	return views
}
