package configuration

type Configuration struct {
	Backend    string `usage:"container backend: array, list or sorted"`
	Growth     string `usage:"array growth policy: exact or doubling"`
	Items      int    `usage:"number of records added to the container"`
	Filter     string `usage:"JSON query applied while printing, e.g. {\"n\":{\"$gt\":3}}"`
	Workers    int    `usage:"goroutines sharing the object pool"`
	Rounds     int    `usage:"acquire/release rounds per worker"`
	PoolLimit  int    `usage:"maximum pooled instances, 0 means unlimited"`
	LogLevel   string `usage:"debug, info, warn or error"`
	Version    bool   `usage:"show version and exit"`
	ShowBanner bool   `usage:"show big banner"`
	ShowConfig bool   `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		Backend:    "array",
		Growth:     "exact",
		Items:      5,
		Filter:     "",
		Workers:    4,
		Rounds:     100,
		PoolLimit:  0,
		LogLevel:   "info",
		Version:    false,
		ShowBanner: true,
		ShowConfig: false,
	}
}
