package database

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// ConnectNATS establishes a connection to the NATS server used for event fanout.
// An empty URL is allowed and returns a nil connection; callers treat NATS as optional.
func ConnectNATS(url string, appName string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url, nats.Name(appName))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}

	return conn, nil
}
