// Package autoload registers all built-in channel factories via their
// init() functions. Import it for side effects only.
package autoload

import (
	_ "relaybot/pkg/channels/telegram"
	_ "relaybot/pkg/channels/web"
)
