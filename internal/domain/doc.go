// Package domain holds the storefront's core types: the content-type registry
// entries and tags that make up the tag index, and the catalog, cart and order
// records they are attached to.
package domain
