package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/paceline/paceline/client"
)

func ExampleBuild() {
	c, err := client.Build(
		client.WithThrottle(5, time.Minute),
		client.WithUserAgent("example/1.0"),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	_ = c
	fmt.Println("client built")
	// Output: client built
}

func ExampleURL() {
	u := client.URL("https", "example.com", "/api/v1",
		client.WithPort(8443),
		client.WithQueryStrings(map[string]string{"key": "value"}),
	)

	fmt.Println(u.String())
	// Output: https://example.com:8443/api/v1?key=value
}

func ExampleRequest() {
	type payload struct {
		Name string `json:"name"`
	}

	u := client.URL("https", "example.com", "/users")

	req, err := client.Request(context.Background(), u, http.MethodPost,
		client.WithPayload(payload{Name: "alice"}),
		client.WithHeaders(map[string][]string{"X-Request-ID": {"abc123"}}),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(req.Method, req.URL.Path, req.Header.Get("X-Request-ID"))
	// Output: POST /users abc123
}

func ExampleClient_ProcessGets() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	defer ts.Close()

	c, err := client.Build(client.WithThrottle(10, time.Second))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	results, err := c.ProcessGets(context.Background(), []string{ts.URL + "/a", ts.URL + "/b"})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, res := range results {
		fmt.Println(res["path"])
	}
	// Output:
	// /a
	// /b
}

func ExampleClient_Pipeline() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	res := c.Pipeline(func(ctx context.Context, c *client.Client) (any, error) {
		return c.Get(ctx, ts.URL, nil)
	})

	result, ok := res.(client.Result)
	if !ok {
		fmt.Println("run failed")
		return
	}

	fmt.Println(result["status"])
	// Output: ok
}
