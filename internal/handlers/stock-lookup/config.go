// internal/handlers/stock-lookup/config.go
package stocklookup

const DefaultTrigger = "@stok"

type Config struct {
	Trigger string
}

func LoadConfig() *Config {
	return &Config{
		Trigger: DefaultTrigger,
	}
}
