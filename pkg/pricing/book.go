package pricing

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/opscart/k8s-capacity-console/pkg/models"
)

// HoursPerDay converts hourly instance prices to the daily figures used everywhere else
const HoursPerDay = 24

// DefaultTTL is how long refreshed prices are trusted
const DefaultTTL = 6 * time.Hour

// Book caches the hourly instance prices from the last price refresh
type Book struct {
	data   map[string]*cacheEntry
	region string
	ttl    time.Duration
	mutex  sync.RWMutex

	now func() time.Time
}

type cacheEntry struct {
	hourly    float64
	expiresAt time.Time
}

func NewBook(ttl time.Duration) *Book {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Book{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Load replaces the book with a refresh result
func (b *Book) Load(r models.PriceRefresh) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	expiresAt := b.now().Add(b.ttl)
	b.region = r.Region
	b.data = make(map[string]*cacheEntry, len(r.HourlyPrices))
	for instance, price := range r.HourlyPrices {
		b.data[instance] = &cacheEntry{hourly: price, expiresAt: expiresAt}
	}
}

// Hourly returns the cached hourly price of an instance type
func (b *Book) Hourly(instance string) (float64, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	entry, exists := b.data[instance]
	if !exists || b.now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.hourly, true
}

func (b *Book) Region() string {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.region
}

func (b *Book) Clear() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.data = make(map[string]*cacheEntry)
	b.region = ""
}

// Table lists every priced instance type plus any instance type used by a
// real node that has no valid price, with the number of such nodes.
func (b *Book) Table(nodes []models.NodeView) models.PriceTable {
	used := make(map[string]int)
	for _, n := range nodes {
		if n.IsVirtual || n.Instance == "" {
			continue
		}
		used[n.Instance]++
	}

	b.mutex.RLock()
	instances := make(map[string]bool, len(b.data)+len(used))
	for instance := range b.data {
		instances[instance] = true
	}
	region := b.region
	b.mutex.RUnlock()
	for instance := range used {
		instances[instance] = true
	}

	table := models.PriceTable{Region: region, Rows: make([]models.InstancePrice, 0, len(instances))}
	for instance := range instances {
		row := models.InstancePrice{Instance: instance, Nodes: used[instance]}
		if hourly, ok := b.Hourly(instance); ok {
			row.Known = true
			row.HourlyUSD = hourly
			row.DailyUSD = hourly * HoursPerDay
		}
		table.Rows = append(table.Rows, row)
	}

	slices.SortFunc(table.Rows, func(x, y models.InstancePrice) int {
		if c := cmp.Compare(y.Nodes, x.Nodes); c != 0 {
			return c
		}
		return cmp.Compare(x.Instance, y.Instance)
	})
	return table
}
