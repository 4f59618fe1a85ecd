package constants

const (
	MaxFilterValueLength = 200
	MaxFilterCount       = 16
)

// ResourcePattern matches a catalog resource slug.
const ResourcePattern = `^[a-z][a-z0-9-]{0,62}$`
