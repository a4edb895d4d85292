// Package transactions exposes the registry over gRPC.
//
// Messages are google.protobuf.Struct documents so the wire contract stays
// JSON-shaped: a Submit request carries the transaction type and its payload
// exactly as the workflow decodes it, and responses carry the committed
// events in their bus wire form. Rejections are returned as gRPC statuses
// with an ErrorInfo reason equal to the rejection code and a localized
// message selected by the caller's locale header.
package transactions
