package services

import (
	"github.com/reichert621/instachat/internal/client/models"
	"github.com/reichert621/instachat/internal/client/timeline"
)

// View is what the chat screen renders. It is rebuilt from scratch on every
// change and never shared with the session goroutine afterwards.
type View struct {
	Channels          []models.Channel
	Users             []models.User
	ActiveChannelName string
	// ActiveChannel is nil when no channel is selected or the selected
	// name does not exist.
	ActiveChannel *models.Channel
	Timeline      []timeline.Entry

	CurrentUser       *models.User
	NeedsRegistration bool
	Draft             string

	// Ready is set once every live query has delivered at least once.
	Ready bool
}

func (s *Session) view() View {
	st := &s.state
	v := View{
		Channels:          st.channels.Channels,
		Users:             st.users.Users,
		ActiveChannelName: st.activeName,
		ActiveChannel:     st.active.Channel,
		Draft:             st.draft,
		Ready:             st.haveChannels && st.haveUsers && st.haveActive,
	}

	u, userID, ok := s.currentUser()
	if ok {
		v.CurrentUser = &u
	}
	v.NeedsRegistration = v.Ready && v.CurrentUser == nil

	if st.active.Channel != nil {
		v.Timeline = s.timeline.Assemble(st.active.Channel.Messages, userID)
	}
	return v
}
