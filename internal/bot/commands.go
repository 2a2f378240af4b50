package bot

// Command constants for Telegram bot commands.
const (
	CommandStart    = "/start"
	CommandFunds    = "/fondos"
	CommandHistory  = "/historial"
	CommandSettings = "/configuracion"
	CommandRefresh  = "/actualizar"
	CommandCancel   = "/cancelar"
	CommandHelp     = "/ayuda"
)
