package bot

// Command constants for bot commands.
const (
	CommandProfile  = "/profile"
	CommandPaid     = "/paid"
	CommandWorker   = "/worker"
	CommandAddLP    = "/addlp"
	CommandSubLP    = "/sublp"
	CommandBankAdd  = "/bankadd"
	CommandBankSub  = "/banksub"
	CommandDaily    = "/daily"
	CommandShutdown = "/shutdown"
)
