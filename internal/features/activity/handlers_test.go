package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/activity-bot/internal/common"
)

type sentMessage struct {
	chatID  int64
	text    string
	replyTo int
}

type recordingSender struct {
	sent []sentMessage
	err  error
}

func (s *recordingSender) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	m := sentMessage{chatID: params.ChatID.ID, text: params.Text}
	if params.ReplyParameters != nil {
		m.replyTo = params.ReplyParameters.MessageID
	}
	s.sent = append(s.sent, m)
	return &telego.Message{}, s.err
}

type cardFunc func(ctx context.Context, guildID, userID string) (*ActivityReport, error)

func (f cardFunc) Card(ctx context.Context, guildID, userID string) (*ActivityReport, error) {
	return f(ctx, guildID, userID)
}

const groupID = int64(-1001234)

func groupMessage(from *telego.User) *telego.Message {
	return &telego.Message{
		MessageID: 42,
		Chat:      telego.Chat{ID: groupID, Type: telego.ChatTypeSupergroup},
		From:      from,
		Text:      "/activity",
	}
}

func TestFormatCard(t *testing.T) {
	tests := []struct {
		name   string
		report ActivityReport
		want   string
	}{
		{
			name:   "ranked mid ladder",
			report: ActivityReport{TierLabel: "Bronze", Rank: 1234, Ranked: true, TotalPoints: 120, CurrentProgress: 20, NextRequired: 150},
			want:   "Title: Bronze\nRank: 1,234\n\nTotal Points: 120\nNext Progress: 20/150",
		},
		{
			name:   "unranked without tier",
			report: ActivityReport{TotalPoints: 99, CurrentProgress: 99, NextRequired: 100},
			want:   "Title: None\nRank: Unranked\n\nTotal Points: 99\nNext Progress: 99/100",
		},
		{
			name:   "max tier",
			report: ActivityReport{TierLabel: "Silver", Rank: 1, Ranked: true, TotalPoints: 25000, CurrentProgress: 25000, MaxTier: true},
			want:   "Title: Silver\nRank: 1\n\nTotal Points: 25,000\nNext Progress: MAX",
		},
		{
			name:   "empty ladder",
			report: ActivityReport{Rank: 3, Ranked: true, TotalPoints: 10, CurrentProgress: 10},
			want:   "Title: None\nRank: 3\n\nTotal Points: 10\nNext Progress: 10/0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCard(tt.report))
		})
	}
}

func TestHandleActivity_OwnCardAndNoticeOnce(t *testing.T) {
	var gotGuild, gotUser string
	svc := cardFunc(func(ctx context.Context, guildID, userID string) (*ActivityReport, error) {
		gotGuild, gotUser = guildID, userID
		return &ActivityReport{TierLabel: "Bronze", Rank: 2, Ranked: true, TotalPoints: 120, CurrentProgress: 20, NextRequired: 150}, nil
	})
	sender := &recordingSender{}
	h := NewHandler(svc, sender)
	msg := groupMessage(&telego.User{ID: 777, FirstName: "Alice"})

	h.HandleActivity(context.Background(), msg)

	assert.Equal(t, "-1001234", gotGuild)
	assert.Equal(t, "777", gotUser)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, groupID, sender.sent[0].chatID)
	assert.Equal(t, 42, sender.sent[0].replyTo)
	assert.Contains(t, sender.sent[0].text, "Rank: 2")
	assert.Equal(t, msgCardNotice, sender.sent[1].text)

	h.HandleActivity(context.Background(), msg)
	require.Len(t, sender.sent, 3, "notice is sent once per member")

	assert.Equal(t, 1, h.ResetNotified())
	h.HandleActivity(context.Background(), msg)
	require.Len(t, sender.sent, 5)
	assert.Equal(t, msgCardNotice, sender.sent[4].text)
}

func TestHandleActivity_ReplyTargetsOtherMember(t *testing.T) {
	var gotUser string
	svc := cardFunc(func(ctx context.Context, guildID, userID string) (*ActivityReport, error) {
		gotUser = userID
		return &ActivityReport{}, nil
	})
	h := NewHandler(svc, &recordingSender{})

	msg := groupMessage(&telego.User{ID: 1})
	msg.ReplyToMessage = &telego.Message{From: &telego.User{ID: 2}}
	h.HandleActivity(context.Background(), msg)

	assert.Equal(t, "2", gotUser)
}

func TestHandleActivity_Replies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"disabled", common.ErrPointsDisabled, msgPointsDisabled},
		{"no points", common.ErrNoPoints, msgNoPoints},
		{"failure", errors.New("db down"), msgFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := cardFunc(func(ctx context.Context, guildID, userID string) (*ActivityReport, error) {
				return nil, tt.err
			})
			sender := &recordingSender{}
			NewHandler(svc, sender).HandleActivity(context.Background(), groupMessage(&telego.User{ID: 5}))

			require.Len(t, sender.sent, 1)
			assert.Equal(t, tt.want, sender.sent[0].text)
		})
	}
}

func TestHandleActivity_Ignored(t *testing.T) {
	called := false
	svc := cardFunc(func(ctx context.Context, guildID, userID string) (*ActivityReport, error) {
		called = true
		return &ActivityReport{}, nil
	})

	t.Run("bot target", func(t *testing.T) {
		sender := &recordingSender{}
		msg := groupMessage(&telego.User{ID: 1})
		msg.ReplyToMessage = &telego.Message{From: &telego.User{ID: 99, IsBot: true}}
		NewHandler(svc, sender).HandleActivity(context.Background(), msg)
		assert.Empty(t, sender.sent)
	})

	t.Run("private chat", func(t *testing.T) {
		sender := &recordingSender{}
		msg := groupMessage(&telego.User{ID: 1})
		msg.Chat = telego.Chat{ID: 1, Type: telego.ChatTypePrivate}
		NewHandler(svc, sender).HandleActivity(context.Background(), msg)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, msgGroupOnly, sender.sent[0].text)
	})

	t.Run("no author", func(t *testing.T) {
		sender := &recordingSender{}
		NewHandler(svc, sender).HandleActivity(context.Background(), groupMessage(nil))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, msgFetchFailed, sender.sent[0].text)
	})

	assert.False(t, called)
}
