// Package provider defines the adapter contract between the search pipeline
// and upstream card-data APIs, plus the registry used to select an adapter
// per row.
//
// Each adapter lives in its own subpackage (scryfall, pokemontcg) and owns
// the translation from its API's request/response shapes into the canonical
// card record. The rest of the system never sees upstream payloads.
package provider
