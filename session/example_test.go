package session_test

import (
	"fmt"
	"log"
	"strings"

	"github.com/ruffel/sshrpc/session"
)

func ExampleConfigFromSSHConfigReader() {
	configContent := `
Host prod-db
  HostName 10.0.0.5
  User admin
  Port 2222
  IdentityFile /keys/prod_key.pem
`

	cfg, err := session.ConfigFromSSHConfigReader("prod-db", strings.NewReader(configContent))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Host: %s\n", cfg.Host)
	fmt.Printf("Login: %s\n", cfg.Login)
	fmt.Printf("Port: %d\n", cfg.Port)
	fmt.Printf("Identity: %s\n", cfg.Identity)

	// Output:
	// Host: 10.0.0.5
	// Login: admin
	// Port: 2222
	// Identity: /keys/prod_key.pem
}
