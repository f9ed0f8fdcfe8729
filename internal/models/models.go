package models

// Notification describes one commit to announce. The caller fills the
// repository fields; the commit fields are populated once per attempt from
// svnlook output.
type Notification struct {
	// Repository-specific
	RepositoryName string
	RepositoryURL  string
	RepositoryPath string
	Revision       string

	// Commit-specific
	CommitAuthor  string
	CommitMessage string
	CommitChanged string

	// Destination channel. Not used when building the payload.
	Channel string
}

// CommitMetadata is the raw svnlook output for one revision
type CommitMetadata struct {
	Author  string
	Message string
	Changed string
}

// WithMetadata returns a copy of n with the commit fields set from meta
func (n Notification) WithMetadata(meta CommitMetadata) Notification {
	n.CommitAuthor = meta.Author
	n.CommitMessage = meta.Message
	n.CommitChanged = meta.Changed
	return n
}

// SanitizedCommit is the escaped view of a notification that is safe to embed
// in the webhook payload, together with the payload itself.
type SanitizedCommit struct {
	Author  string
	Message string
	Changed string
	Link    string
	Payload string
}

// NotifyRequest represents the request payload accepted by the relay server
type NotifyRequest struct {
	RepositoryName string `json:"repository_name"`
	RepositoryURL  string `json:"repository_url,omitempty"`
	RepositoryPath string `json:"repository_path" validate:"required"`
	Revision       string `json:"revision" validate:"required"`
	Channel        string `json:"channel,omitempty"`
}

// Notification converts the request into a Notification
func (r *NotifyRequest) Notification() Notification {
	return Notification{
		RepositoryName: r.RepositoryName,
		RepositoryURL:  r.RepositoryURL,
		RepositoryPath: r.RepositoryPath,
		Revision:       r.Revision,
		Channel:        r.Channel,
	}
}
