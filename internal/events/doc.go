// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

/*
Package events publishes catalog change notifications.

Every entry committed by an import run is announced as an [EntryImported]
event on a single topic (catalog.entry.imported by default) so downstream
consumers, such as a search indexer, can react without polling the store.

# Backends

  - none: [NopPublisher], events are dropped
  - gochannel: in-process Watermill pub/sub, useful for tests and single-binary consumers
  - nats: Watermill NATS publisher (core NATS subjects)
  - kafka: IBM/sarama synchronous producer keyed by entry slug

Publishing is best-effort from the importer's point of view: a failed
publish is logged and counted but never fails the record.

# Usage

	pub, err := events.NewPublisher(&cfg.Events)
	if err != nil {
	    return err
	}
	defer pub.Close()

	importer := catalogimport.NewImporter(auth, source, store, mapper,
	    catalogimport.WithPublisher(pub))
*/
package events
