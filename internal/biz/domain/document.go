package domain

// Permission types for managing expressions
const (
	PermAdmin    = "admin"
	PermEveryone = "everyone"
	PermRole     = "role"
)

// ChatDocument is the persisted per-chat record: chat metadata plus the
// ordered expression list (insertion order = evaluation order)
type ChatDocument struct {
	Info        ChatInfo     `json:"info"`
	Expressions []Expression `json:"expressions"`
}

// ChatInfo holds chat metadata and settings, opaque to the dispatch engine
type ChatInfo struct {
	ID        string           `json:"id,omitempty"`
	Name      string           `json:"name,omitempty"`
	InvitedAt string           `json:"invited_at,omitempty"`
	Perms     *ExpressionPerms `json:"expression_perms,omitempty"`
	Logs      *ExpressionLogs  `json:"expression_logs,omitempty"`
}

// ExpressionPerms controls who may manage expressions in a chat
type ExpressionPerms struct {
	Type   string `json:"type"` // admin, everyone, role
	RoleID string `json:"role_id,omitempty"`
}

// ExpressionLogs configures the audit log channel and per-event toggles.
// LogTrigger is stored and toggleable but no engine path consults it.
type ExpressionLogs struct {
	ChannelID  string `json:"channel_id,omitempty"`
	LogCreate  bool   `json:"log_create"`
	LogEdit    bool   `json:"log_edit"`
	LogDelete  bool   `json:"log_delete"`
	LogTrigger bool   `json:"log_trigger"`
}

// LogDefaults are the toggle values applied to documents that predate
// the expression_logs field
type LogDefaults struct {
	LogCreate  bool
	LogEdit    bool
	LogDelete  bool
	LogTrigger bool
}

// NewChatDocument returns an empty document for a chat with no persisted state
func NewChatDocument() *ChatDocument {
	return &ChatDocument{Expressions: []Expression{}}
}

// WithDefaults backfills fields that documents written by older schema
// versions may lack. Applied once at load time; never removes data.
func (d *ChatDocument) WithDefaults(logDefaults LogDefaults) *ChatDocument {
	if d.Expressions == nil {
		d.Expressions = []Expression{}
	}
	if d.Info.Perms == nil {
		d.Info.Perms = &ExpressionPerms{Type: PermAdmin}
	}
	if d.Info.Logs == nil {
		d.Info.Logs = &ExpressionLogs{
			LogCreate:  logDefaults.LogCreate,
			LogEdit:    logDefaults.LogEdit,
			LogDelete:  logDefaults.LogDelete,
			LogTrigger: logDefaults.LogTrigger,
		}
	}
	return d
}

// FindExpression returns the expression with the given ID, or nil
func (d *ChatDocument) FindExpression(id string) *Expression {
	for i := range d.Expressions {
		if d.Expressions[i].ID == id {
			return &d.Expressions[i]
		}
	}
	return nil
}

// HasExpression reports whether an expression with the given ID exists
func (d *ChatDocument) HasExpression(id string) bool {
	return d.FindExpression(id) != nil
}

// RemoveExpression deletes the expression with the given ID, preserving the
// order of the remaining expressions. Returns false if no such expression.
func (d *ChatDocument) RemoveExpression(id string) bool {
	for i := range d.Expressions {
		if d.Expressions[i].ID == id {
			d.Expressions = append(d.Expressions[:i], d.Expressions[i+1:]...)
			return true
		}
	}
	return false
}
