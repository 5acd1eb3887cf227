package demoserver

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int `yaml:"port"`

	// DBPath is the SQLite file backing the posts table. Empty keeps the
	// data in memory for the lifetime of the process.
	DBPath string `yaml:"db_path"`

	// SeedPosts is how many posts an empty database is filled with.
	SeedPosts int `yaml:"seed_posts"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:      9999,
		SeedPosts: 100,
	}
}
