package paceline_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/paceline/paceline"
	"github.com/paceline/paceline/client"
)

func ExampleNewClient() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Calls-Remaining", "99")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"msg":"hello"}`)
	}))
	defer ts.Close()

	c, err := paceline.NewClient(
		client.WithThrottle(10, time.Second),
		client.WithQuotaKeys("", "", "X-Calls-Remaining"),
	)
	if err != nil {
		fmt.Println("build error:", err)
		return
	}

	res, err := c.Get(context.Background(), ts.URL, nil)
	if err != nil {
		fmt.Println("get error:", err)
		return
	}

	remaining, _ := c.Quota().Remaining()
	fmt.Println(res["msg"], remaining)
	// Output: hello 99
}
