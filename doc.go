// Package facet is the composition root for facet.
//
// Facet gives repositories speaking the CMIS protocol a single aspect API.
// A repository on protocol 1.0 carries aspects in Alfresco extension
// elements; one on protocol 1.1 lists them as secondary type ids. The
// aspect service picks the matching representation once, at connect time,
// and callers only deal with aspect ids and properties.
//
// Features:
//
//   - **Aspect reconciliation**: add, remove and update aspects on object
//     snapshots; no-op requests never reach the repository.
//   - **Effective schema**: a type view merging the primary type with the
//     applied aspects.
//   - **Adapters**: a YAML file repository with a hot-reloaded type catalog
//     and an in-memory repository for tests.
//   - **Type cache**: concurrent lookups of the same type share one call.
//
// Usage:
//
//	svc, err := facet.New(ctx, "./repo",
//		facet.WithProtocolVersion(facet.ProtocolV1),
//		facet.WithLogger(logger),
//	)
//
//	obj, err = svc.AddAspects(ctx, obj, "P:cm:titled")
package facet
