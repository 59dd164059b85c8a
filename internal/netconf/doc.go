// Package netconf implements a minimal NETCONF client over SSH.
//
// The client speaks the base:1.0 protocol: a capability hello exchange on
// session start, then framed <rpc> messages terminated by the ]]>]]>
// delimiter. Only the <get-config> operation against the running datastore
// is implemented, with an optional subtree filter.
//
// Connections are created through the Provider interface so the discovery
// workers can be tested against an in-memory implementation.
package netconf
