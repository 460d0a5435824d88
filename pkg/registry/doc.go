// Package registry contains the flake release domain model and the query
// orchestration service that joins search-engine hits with relational
// records.
//
// The service depends on two narrow interfaces, ReleaseStore and Searcher,
// so both backends can be substituted with fakes in tests. All ordering
// responsibility for search results lives here: the relational store returns
// hydrated records in no particular order and the service re-ranks them by
// the relevance scores produced by the search step.
package registry
