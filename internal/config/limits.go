package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxSlugAttempts caps the "-2", "-3", ... suffix probing during unique
	// slug generation. Exhausting it means pathological name collisions; the
	// caller fails with a conflict instead of looping forever.
	MaxSlugAttempts = 10000

	// DefaultPerPage is the page size used when the client does not ask for one.
	DefaultPerPage = 30

	// MaxPerPage caps client-requested page sizes.
	MaxPerPage = 100
)
