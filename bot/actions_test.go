package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUserAction(t *testing.T) {
	cases := map[string]UserAction{
		"💰 Balance":     ActionBalance,
		"🎁 Daily Bonus": ActionDailyBonus,
		"👥 Invite":      ActionInvite,
		"💵 Withdraw":    ActionWithdraw,
		"📢 Support":     ActionSupport,
		" 💰 Balance ":   ActionBalance,
		"hello":          ActionUnknown,
		"":               ActionUnknown,
	}
	for text, want := range cases {
		require.Equal(t, want, ParseUserAction(text), "text %q", text)
	}
}

func TestParseCallback(t *testing.T) {
	cases := map[string]Callback{
		"U:JOINED":                {Kind: CallbackJoined},
		"A:BACK":                  {Kind: CallbackAdminHome},
		"A:CHAN_DEL|@mychannel":   {Kind: CallbackChannelDelete, Arg: "@mychannel"},
		"A:SETK|MIN_WITHDRAW":     {Kind: CallbackSettingEdit, Arg: "MIN_WITHDRAW"},
		"A:WD_OK|42":              {Kind: CallbackPayoutApprove, Arg: "42"},
		"A:NOPE":                  {Kind: CallbackUnknown},
		"garbage":                 {Kind: CallbackUnknown},
		"":                        {Kind: CallbackUnknown},
	}
	for data, want := range cases {
		require.Equal(t, want, ParseCallback(data), "data %q", data)
	}
}

func TestAdminCallbackDataRoundTrip(t *testing.T) {
	for _, kind := range []CallbackKind{
		CallbackAdminHome, CallbackChannels, CallbackPayouts, CallbackOwnerBackup,
	} {
		data := adminCallbackData(kind, "")
		require.Equal(t, Callback{Kind: kind}, ParseCallback(data))
	}

	data := adminCallbackData(CallbackPayoutView, "7")
	require.Equal(t, Callback{Kind: CallbackPayoutView, Arg: "7"}, ParseCallback(data))
}
