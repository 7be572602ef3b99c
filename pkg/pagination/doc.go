// Package pagination drives page-numbered REST collections to exhaustion.
//
// A Paginator requests page 1, 2, 3, ... from a PageSource with a fixed
// page size and concatenates the returned records in page order. It stops
// at the first empty page, or at the first failing page, in which case the
// records gathered so far are returned and the failure is logged.
//
// Example usage:
//
//	c, _ := client.New(client.DefaultConfig("https://api.openbrewerydb.org"))
//	source := pagination.NewClientSource(c, "/v1/breweries", nil, "")
//	p := pagination.New(source, pagination.DefaultConfig())
//	records := p.FetchAll(ctx, 50)
//
// Pages are fetched sequentially. Config.RequestsPerSecond throttles page
// calls and Config.MaxPages caps a run against a collection that never
// returns an empty page.
package pagination
