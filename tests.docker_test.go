package main

import (
	"net"
	"testing"

	"github.com/ory/dockertest/v3"
)

// startDockerContainer runs the image and waits until ready succeeds against
// the address of the exposed port. Tests are skipped in short mode or when
// no docker daemon can be reached.
func startDockerContainer(t *testing.T, repository, tag, port string, ready func(addr string) error) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping docker based test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("Failed to start Dockertest: %+v", err)
	}

	if err = pool.Client.Ping(); err != nil {
		t.Skipf("Could not connect to Docker: %+v", err)
	}

	resource, err := pool.Run(repository, tag, nil)
	if err != nil {
		t.Fatalf("Failed to start %s: %+v", repository, err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Failed to purge resource: %+v", err)
		}
	})

	// build address the container is listening on
	addr := net.JoinHostPort("localhost", resource.GetPort(port))

	// ensure to wait for the container to be ready
	if err = pool.Retry(func() error { return ready(addr) }); err != nil {
		t.Fatalf("Failed to reach %s: %+v", repository, err)
	}
	return addr
}
