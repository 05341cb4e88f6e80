package email

// Config holds the IMAP server settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool

	// Mailbox is the folder sessions select, INBOX when empty.
	Mailbox string
}

// archiveFolders are tried in order when archiving a message.
var archiveFolders = []string{
	"Archive", "[Gmail]/All Mail", "Archives", "INBOX.Archive",
}
