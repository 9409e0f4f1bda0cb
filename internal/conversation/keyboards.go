package conversation

import (
	"github.com/samber/lo"

	"github.com/edgard/renamerbot/internal/config"
	"github.com/edgard/renamerbot/internal/transport"
)

// MenuKeyboard is the idle reply keyboard. Admins also get the statistics and
// broadcast buttons.
func MenuKeyboard(msgs config.MessagesConfig, admin bool) transport.Keyboard {
	buttons := []string{msgs.ButtonRename}
	if admin {
		buttons = append(buttons, msgs.ButtonStats, msgs.ButtonBroadcast)
	}
	return transport.Keyboard{Rows: lo.Chunk(buttons, 2)}
}

// CancelKeyboard offers only the cancel button.
func CancelKeyboard(msgs config.MessagesConfig) transport.Keyboard {
	return transport.Keyboard{Rows: [][]string{{msgs.ButtonCancel}}}
}

// ConfirmKeyboard offers confirm and cancel side by side.
func ConfirmKeyboard(msgs config.MessagesConfig) transport.Keyboard {
	return transport.Keyboard{Rows: [][]string{{msgs.ButtonConfirm, msgs.ButtonCancel}}}
}
