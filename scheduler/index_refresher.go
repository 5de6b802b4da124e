package scheduler

import (
	"log"

	"partstream/repository"
	"partstream/search"

	"github.com/robfig/cron/v3"
)

// IndexRefresher periodically reloads the catalog and rebuilds the fuzzy
// search index, so out-of-band catalog edits (imports, direct SQL) are
// picked up without a restart.
type IndexRefresher struct {
	cron        *cron.Cron
	productRepo *repository.ProductRepository
	matcher     *search.Matcher
	spec        string
}

func NewIndexRefresher(productRepo *repository.ProductRepository, matcher *search.Matcher, spec string) *IndexRefresher {
	return &IndexRefresher{
		cron:        cron.New(cron.WithSeconds()),
		productRepo: productRepo,
		matcher:     matcher,
		spec:        spec,
	}
}

// Start schedules the periodic rebuild and runs one immediately
func (ir *IndexRefresher) Start() {
	_, err := ir.cron.AddFunc(ir.spec, ir.Refresh)
	if err != nil {
		log.Printf("Failed to schedule index refresher: %v", err)
		return
	}

	// Build the initial index on startup
	go ir.Refresh()

	ir.cron.Start()
	log.Printf("Index refresher scheduled (%s)", ir.spec)
}

// Stop stops the scheduled rebuilds
func (ir *IndexRefresher) Stop() {
	if ir.cron != nil {
		ir.cron.Stop()
	}
}

// Refresh reloads the catalog and rebuilds the matcher index
func (ir *IndexRefresher) Refresh() {
	products, err := ir.productRepo.GetAllProducts()
	if err != nil {
		log.Printf("Failed to load catalog for index rebuild: %v", err)
		return
	}

	ir.matcher.Rebuild(products)
	log.Printf("Search index rebuilt with %d products", len(products))
}
