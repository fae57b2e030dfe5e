package bot

import "strings"

// UserAction is a menu action decoded from a reply-keyboard label. Labels
// are compared once here; the rest of the code matches on the enum.
type UserAction int

const (
	ActionUnknown UserAction = iota
	ActionBalance
	ActionDailyBonus
	ActionInvite
	ActionWithdraw
	ActionSupport
)

const (
	labelBalance    = "💰 Balance"
	labelDailyBonus = "🎁 Daily Bonus"
	labelInvite     = "👥 Invite"
	labelWithdraw   = "💵 Withdraw"
	labelSupport    = "📢 Support"
)

func ParseUserAction(text string) UserAction {
	switch strings.TrimSpace(text) {
	case labelBalance:
		return ActionBalance
	case labelDailyBonus:
		return ActionDailyBonus
	case labelInvite:
		return ActionInvite
	case labelWithdraw:
		return ActionWithdraw
	case labelSupport:
		return ActionSupport
	}
	return ActionUnknown
}

// CallbackKind enumerates every button callback the bot understands.
type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackJoined

	CallbackAdminHome
	CallbackAdmins
	CallbackAdminAdd
	CallbackAdminRemove
	CallbackChannels
	CallbackChannelAdd
	CallbackChannelDelete
	CallbackSettings
	CallbackSettingEdit
	CallbackMaintenance
	CallbackBroadcast
	CallbackBroadcastAll
	CallbackBroadcastActive
	CallbackPayouts
	CallbackPayoutView
	CallbackPayoutApprove
	CallbackPayoutReject
	CallbackBanMenu
	CallbackBan
	CallbackUnban
	CallbackBalanceMenu
	CallbackBalanceAdd
	CallbackBalanceRemove
	CallbackBalanceReset
	CallbackBonusReset
	CallbackLookup
	CallbackExport
	CallbackExportUsers
	CallbackExportWithdrawals
	CallbackOwner
	CallbackOwnerBackup
)

// Callback is a parsed button press: the kind plus an optional argument
// (channel handle, settings key or withdrawal id).
type Callback struct {
	Kind CallbackKind
	Arg  string
}

// Wire codes. User callbacks carry a "U:" prefix, admin callbacks "A:";
// an argument is appended after "|".
const (
	codeJoined  = "U:JOINED"
	adminPrefix = "A:"
)

var adminCodes = map[string]CallbackKind{
	"BACK":     CallbackAdminHome,
	"ADMINS":   CallbackAdmins,
	"ADM_ADD":  CallbackAdminAdd,
	"ADM_REM":  CallbackAdminRemove,
	"CHANS":    CallbackChannels,
	"CHAN_ADD": CallbackChannelAdd,
	"CHAN_DEL": CallbackChannelDelete,
	"SET":      CallbackSettings,
	"SETK":     CallbackSettingEdit,
	"MAINT":    CallbackMaintenance,
	"BC":       CallbackBroadcast,
	"BCALL":    CallbackBroadcastAll,
	"BCACT":    CallbackBroadcastActive,
	"PAYOUTS":  CallbackPayouts,
	"WD_VIEW":  CallbackPayoutView,
	"WD_OK":    CallbackPayoutApprove,
	"WD_REJ":   CallbackPayoutReject,
	"BANSET":   CallbackBanMenu,
	"BAN":      CallbackBan,
	"UNBAN":    CallbackUnban,
	"BALSET":   CallbackBalanceMenu,
	"BALADD":   CallbackBalanceAdd,
	"BALREM":   CallbackBalanceRemove,
	"BALRST":   CallbackBalanceReset,
	"BONUSRST": CallbackBonusReset,
	"LOOKUP":   CallbackLookup,
	"EXPORT":   CallbackExport,
	"EX_USERS": CallbackExportUsers,
	"EX_WD":    CallbackExportWithdrawals,
	"OWNER":    CallbackOwner,
	"BK_DB":    CallbackOwnerBackup,
}

// ParseCallback decodes callback data exactly once at the transport
// boundary.
func ParseCallback(data string) Callback {
	if data == codeJoined {
		return Callback{Kind: CallbackJoined}
	}
	code, ok := strings.CutPrefix(data, adminPrefix)
	if !ok {
		return Callback{Kind: CallbackUnknown}
	}
	op, arg, _ := strings.Cut(code, "|")
	kind, ok := adminCodes[op]
	if !ok {
		return Callback{Kind: CallbackUnknown}
	}
	return Callback{Kind: kind, Arg: arg}
}

func adminCallbackData(kind CallbackKind, arg string) string {
	for op, k := range adminCodes {
		if k == kind {
			if arg != "" {
				return adminPrefix + op + "|" + arg
			}
			return adminPrefix + op
		}
	}
	return adminPrefix + "BACK"
}
