package wynagrodzenia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"brutto-netto/lib/scrapers/wynagrodzenia/wynagrodzeniatest"

	"github.com/stretchr/testify/require"
)

func newTestClient(t testing.TB, baseUrl string) *Client {
	client, err := NewClient(ClientOptions{BaseUrl: baseUrl, Timeout: time.Second * 5})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestCalculate(t *testing.T) {
	server := wynagrodzeniatest.NewServer(map[string]string{
		"4000":    "2 907,96 zł",
		"2239":    "1666,14",
		"9999.99": "7140.38",
	})
	defer server.Close()

	client := newTestClient(t, server.Url())

	testCases := []struct {
		amount   string
		expected string
	}{
		{amount: "4000", expected: "2907.96"},
		{amount: "2239", expected: "1666.14"},
		{amount: "9999.99", expected: "7140.38"},
	}
	for _, test := range testCases {
		net, err := client.Calculate(context.Background(), test.amount)
		require.NoError(t, err)
		require.Equal(t, test.expected, net)
	}
}

func TestCalculateSubmitsFields(t *testing.T) {
	server := wynagrodzeniatest.NewServer(map[string]string{"4000": "2907"})
	defer server.Close()

	client := newTestClient(t, server.Url())
	_, err := client.Calculate(context.Background(), "4000")
	require.NoError(t, err)

	submissions := server.Submissions()
	require.Len(t, submissions, 1)
	form := submissions[0]

	require.Equal(t, "token-1", form.Get(TokenField))
	require.Equal(t, "4000", form.Get(EarningsField))
	for month := 0; month < 12; month++ {
		require.Equal(t, "4000", form.Get(fmt.Sprintf(MonthlyField, month)), "month %d", month)
	}
	require.Empty(t, form.Get(fmt.Sprintf(MonthlyField, 12)))

	for key, values := range DefaultParameters().Values() {
		require.Equal(t, values, form[key], key)
	}
	require.Equal(t, "2019", form.Get("sedlak_calculator[year]"))
	require.Equal(t, "1.67", form.Get("work_accidentPercent"))

	// form defaults are carried over like a browser would submit them
	require.Equal(t, "3", form.Get("sedlak_calculator[pageVersion]"))
	require.Equal(t, "6", form.Get("sedlak_calculator[month]"))
	require.NotContains(t, form, "sedlak_calculator[ppk]")
	require.NotContains(t, form, "sedlak_calculator[save]")
}

func TestCalculateConcurrentSessions(t *testing.T) {
	nets := map[string]string{}
	for i := 1; i <= 8; i++ {
		nets[fmt.Sprint(i*1000)] = fmt.Sprint(i * 700)
	}
	server := wynagrodzeniatest.NewServer(nets)
	defer server.Close()

	client := newTestClient(t, server.Url())

	var wg sync.WaitGroup
	errs := make(chan error, len(nets))
	for gross, expected := range nets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			net, err := client.Calculate(context.Background(), gross)
			if err != nil {
				errs <- err
				return
			}
			if net != expected {
				errs <- fmt.Errorf("%s: expected %s got %s", gross, expected, net)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestCalculateProtocolErrors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		target  error
	}{
		{
			name: "missing form",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html><body>maintenance</body></html>`)
			},
			target: ErrProtocol,
		},
		{
			name: "missing token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<form name="sedlak_calculator" method="post"><input name="x" value="1"></form>`)
			},
			target: ErrProtocol,
		},
		{
			name: "missing result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					fmt.Fprint(w, `<form name="sedlak_calculator" method="post"><input type="hidden" name="sedlak_calculator[_token]" value="abc"></form>`)
					return
				}
				fmt.Fprint(w, `<div class="other"><span>2907</span></div>`)
			},
			target: ErrProtocol,
		},
		{
			name: "result without a number",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					fmt.Fprint(w, `<form name="sedlak_calculator" method="post"><input type="hidden" name="sedlak_calculator[_token]" value="abc"></form>`)
					return
				}
				fmt.Fprint(w, `<div class="count-salary"><span>brak danych</span></div>`)
			},
			target: ErrParse,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			target: ErrNetwork,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(test.handler)
			defer server.Close()

			client := newTestClient(t, server.URL+"/")
			_, err := client.Calculate(context.Background(), "4000")
			require.ErrorIs(t, err, test.target)
		})
	}
}

func TestCalculateUnknownAmount(t *testing.T) {
	server := wynagrodzeniatest.NewServer(map[string]string{})
	defer server.Close()

	_, err := newTestClient(t, server.Url()).Calculate(context.Background(), "4000")
	require.ErrorIs(t, err, ErrProtocol)
}

func TestCalculateNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/"
	server.Close()

	_, err := newTestClient(t, url).Calculate(context.Background(), "4000")
	require.ErrorIs(t, err, ErrNetwork)
}

func TestCalculateContextDeadline(t *testing.T) {
	server := wynagrodzeniatest.NewServer(map[string]string{"4000": "2907"})
	defer server.Close()
	server.SetDelay("4000", time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*200)
	defer cancel()

	start := time.Now()
	_, err := newTestClient(t, server.Url()).Calculate(ctx, "4000")
	require.ErrorIs(t, err, ErrNetwork)
	require.True(t, errors.Is(err, context.DeadlineExceeded), err.Error())
	require.Less(t, time.Since(start), time.Second*5)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(ClientOptions{BaseUrl: "not a url"})
	require.Error(t, err)

	client, err := NewClient(ClientOptions{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(client.baseUrl.String(), "https://wynagrodzenia.pl"))
}

func TestParseResult(t *testing.T) {
	net, err := parseResult([]byte(`<div class="count-salary"><span> 32 637,25 zł </span></div>`))
	require.NoError(t, err)
	require.Equal(t, "32637.25", net)
}
