package flow

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/average-calculator/src/category"
	"example.com/average-calculator/src/prom_metrics"
	"example.com/average-calculator/src/source"
	"example.com/average-calculator/src/store"
)

type Response struct {
	WindowPrevState []int   `json:"windowPrevState"`
	WindowCurrState []int   `json:"windowCurrState"`
	Numbers         []int   `json:"numbers"`
	Avg             float64 `json:"avg"`
}

// Handler runs one request: fetch, merge into the category window, average.
type Handler struct {
	store   store.Store
	source  source.NumberSource
	metrics *prom_metrics.Prom_metrics
	events  Publisher
}

// NewHandler wires the request flow. metrics and events may be nil.
func NewHandler(s store.Store, src source.NumberSource, metrics *prom_metrics.Prom_metrics, events Publisher) *Handler {
	return &Handler{
		store:   s,
		source:  src,
		metrics: metrics,
		events:  events,
	}
}

/*
 *	Handle never fails for a valid category. When the source fails, returns
 *	nothing, or the fetch or update panics, the response reports the current
 *	window unchanged with no added numbers. Once the window is updated the
 *	response always reflects that update.
 */
func (h *Handler) Handle(ctx context.Context, c category.Category) (resp Response) {
	log := logrus.WithField("category", c.Name())
	h.metrics.Inc_requests(c.Name())

	outcome := ""
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("handler.handle: error processing request: %v", r)
			resp = h.unchanged(c)
			outcome = prom_metrics.OutcomePanic
		}
		h.metrics.Inc_fetch(c.Name(), outcome)
	}()

	fetch_start := time.Now()
	numbers, err := h.source.Fetch(ctx, c)
	h.metrics.Observe_fetch_time(time.Since(fetch_start))

	if err != nil {
		log.Warnf("handler.handle: no data, using current window: %+v", err)
		outcome = prom_metrics.OutcomeFailed
		return h.unchanged(c)
	}
	if len(numbers) == 0 {
		log.Warnf("handler.handle: empty fetch, using current window")
		outcome = prom_metrics.OutcomeEmpty
		return h.unchanged(c)
	}
	log.Infof("handler.handle: got new numbers %v", numbers)

	update := h.store.Update(c, numbers)
	resp = Response{
		WindowPrevState: non_nil(update.Previous),
		WindowCurrState: non_nil(update.Current),
		Numbers:         non_nil(update.Added),
		Avg:             Average(update.Current),
	}
	outcome = prom_metrics.OutcomeOK

	h.after_update(log, c, resp)
	return resp
}

// after_update reports an applied update. A panic here is logged and never
// changes the response, because the window has already moved.
func (h *Handler) after_update(log *logrus.Entry, c category.Category, resp Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("handler.after_update: %v", r)
		}
	}()

	log.Infof("handler.handle: window update prev=%v curr=%v added=%v avg=%v", resp.WindowPrevState, resp.WindowCurrState, resp.Numbers, resp.Avg)
	h.metrics.Add_numbers(c.Name(), len(resp.Numbers))
	h.metrics.Set_window_size(c.Name(), len(resp.WindowCurrState))

	if h.events != nil {
		h.events.Publish(&WindowEvent{
			Category:        c.String(),
			WindowPrevState: resp.WindowPrevState,
			WindowCurrState: resp.WindowCurrState,
			Numbers:         resp.Numbers,
			Avg:             resp.Avg,
			Time:            time.Now().UTC(),
		})
	}
}

func (h *Handler) unchanged(c category.Category) Response {
	window := non_nil(h.store.Snapshot(c))
	return Response{
		WindowPrevState: window,
		WindowCurrState: window,
		Numbers:         []int{},
		Avg:             Average(window),
	}
}

func non_nil(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}
