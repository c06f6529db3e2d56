package content

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

// MaxEvents is how many events the home page shows.
const MaxEvents = 3

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

type Event struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// FallbackEvents is served when nothing could be scraped.
var FallbackEvents = []Event{
	{Name: "Sustainable Agriculture Summit", Date: "TBA", Location: "Online"},
	{Name: "Organic Farming Workshop", Date: "TBA", Location: "Online"},
}

// The listing page has changed markup several times; each group is tried
// in order and the first match wins.
var (
	cardSelectors     = []string{"div.search-event-card-wrapper", "div.eds-event-card", "section.eds-event-card--content"}
	nameSelectors     = []string{"h2.eds-event-card__title", "h3.eds-event-card-content__title", "div.event-card-details h3"}
	dateSelectors     = []string{"p.eds-text-color--ui-600", "div.eds-text-color--ui-600", "div.event-card__date"}
	locationSelectors = []string{"p.eds-event-card__sub-title", "div.eds-event-card__sub-content", "div.event-card__location"}
)

// ParseEvents extracts up to limit events from an event listing page.
func ParseEvents(r io.Reader, limit int) ([]Event, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse events page: %w", err)
	}

	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		if cards = doc.Find(sel); cards.Length() > 0 {
			break
		}
	}

	events := []Event{}
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		events = append(events, Event{
			Name:     firstText(card, nameSelectors, "Unknown Event"),
			Date:     firstText(card, dateSelectors, "TBA"),
			Location: firstText(card, locationSelectors, "Online"),
		})
		return len(events) < limit
	})
	return events, nil
}

func firstText(card *goquery.Selection, selectors []string, def string) string {
	for _, sel := range selectors {
		if s := card.Find(sel).First(); s.Length() > 0 {
			return strings.TrimSpace(s.Text())
		}
	}
	return def
}

// EventsService scrapes the events page at most once per UTC day.
type EventsService struct {
	url    string
	client *http.Client
	now    func() time.Time

	group singleflight.Group

	mu     sync.RWMutex
	day    string
	events []Event
}

func NewEventsService(url string, timeout time.Duration) *EventsService {
	return &EventsService{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
}

func (s *EventsService) today() string {
	return s.now().UTC().Format(time.DateOnly)
}

func (s *EventsService) cached() ([]Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events, s.day == s.today() && len(s.events) > 0
}

// Events returns today's events. Scrape failures fall back to the last
// scraped list, then to FallbackEvents.
func (s *EventsService) Events(ctx context.Context) []Event {
	if events, fresh := s.cached(); fresh {
		return events
	}

	// Concurrent cache misses share one scrape. The scrape outlives a
	// single caller's cancellation.
	v, err, _ := s.group.Do("events", func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		log.Printf("WARNING: events scrape failed: %v", err)
		if events, _ := s.cached(); len(events) > 0 {
			return events
		}
		return FallbackEvents
	}

	events := v.([]Event)
	if len(events) == 0 {
		log.Println("WARNING: no events parsed, returning fallback")
		return FallbackEvents
	}
	return events
}

// Refresh scrapes the page now and updates the cache.
func (s *EventsService) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("events", func() (any, error) {
		return s.refresh(ctx)
	})
	return err
}

func (s *EventsService) refresh(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch events page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch events page: status %d", resp.StatusCode)
	}

	events, err := ParseEvents(resp.Body, MaxEvents)
	if err != nil {
		return nil, err
	}

	// Empty results are not cached so the next request tries again.
	if len(events) > 0 {
		s.mu.Lock()
		s.day = s.today()
		s.events = events
		s.mu.Unlock()
	}
	log.Printf("Scraped %d events from %s", len(events), s.url)
	return events, nil
}

// Run refreshes the cache immediately and then every interval until ctx is
// cancelled.
func (s *EventsService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			log.Printf("WARNING: background events refresh failed: %v", err)
		}
		select {
		case <-ctx.Done():
			log.Println("Events refresher stopped")
			return
		case <-ticker.C:
		}
	}
}
