// Package wynagrodzeniatest provides a stub salary calculator that speaks
// the same form protocol as the real site.
package wynagrodzeniatest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

const (
	LandingPath = "/kalkulator-wynagrodzen/"
	ResultPath  = "/kalkulator-wynagrodzen/wynik"
	sessionName = "PHPSESSID"
)

// Server answers GETs of LandingPath with the calculator form and POSTs of
// ResultPath with the net amount configured for the submitted earnings.
// Tokens are bound to the session cookie, a submission with a token from
// another session is rejected with 403.
type Server struct {
	*httptest.Server

	lock        sync.Mutex
	nets        map[string]string
	delays      map[string]time.Duration
	submissions []url.Values
	sessions    uint64
}

// NewServer maps gross earnings (as submitted) to the text shown in the
// result container, e.g. "4000" -> "2 907,96 zł". Earnings without an entry
// get a page without any result container.
func NewServer(nets map[string]string) *Server {
	s := &Server{
		nets:   nets,
		delays: map[string]time.Duration{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc(LandingPath, s.handleLanding)
	mux.HandleFunc(ResultPath, s.handleResult)
	s.Server = httptest.NewServer(mux)
	return s
}

// Url is the landing page, what the calculator client should use as its
// base url.
func (s *Server) Url() string {
	return s.Server.URL + LandingPath
}

// SetDelay makes the result for `earnings` take `delay` to arrive, the
// handler gives up early if the client goes away.
func (s *Server) SetDelay(earnings string, delay time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.delays[earnings] = delay
}

func (s *Server) Submissions() []url.Values {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]url.Values(nil), s.submissions...)
}

func tokenFor(session string) string {
	return "token-" + session
}

const formTemplate = `<!DOCTYPE html>
<html>
<body>
	<form name="sedlak_calculator" method="post" action="wynik">
		<input type="hidden" name="sedlak_calculator[_token]" value="%s">
		<input type="text" name="sedlak_calculator[earnings]" value="">
		<input type="hidden" name="sedlak_calculator[pageVersion]" value="3">
		<input type="checkbox" name="sedlak_calculator[ppk]" value="1">
		<select name="sedlak_calculator[month]">
			<option value="1">styczeń</option>
			<option value="6" selected>czerwiec</option>
		</select>
		<button type="submit" name="sedlak_calculator[save]">Oblicz</button>
	</form>
</body>
</html>`

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	session := fmt.Sprint(atomic.AddUint64(&s.sessions, 1))
	http.SetCookie(w, &http.Cookie{Name: sessionName, Value: session, Path: "/"})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, formTemplate, html.EscapeString(tokenFor(session)))
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	err := r.ParseForm()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	cookie, err := r.Cookie(sessionName)
	if err != nil || r.PostForm.Get("sedlak_calculator[_token]") != tokenFor(cookie.Value) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	earnings := r.PostForm.Get("sedlak_calculator[earnings]")

	s.lock.Lock()
	s.submissions = append(s.submissions, r.PostForm)
	delay := s.delays[earnings]
	net, ok := s.nets[earnings]
	s.lock.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !ok {
		fmt.Fprint(w, `<html><body><p>Wystąpił błąd</p></body></html>`)
		return
	}
	fmt.Fprintf(
		w,
		`<html><body><div class="count-salary"><span>%s</span><span>netto</span></div></body></html>`,
		html.EscapeString(net),
	)
}
