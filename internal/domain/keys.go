package domain

// KeyPrefix namespaces every key the service writes to a shared KV store.
const KeyPrefix = "kmlfilter:"
