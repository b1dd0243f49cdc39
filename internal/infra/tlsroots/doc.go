// Package tlsroots manages the certificates used on both ends of an HTTPS
// connection.
//
// The server side uses KeyPairReloader, which serves the configured
// certificate and key through tls.Config.GetCertificate and reloads them
// when either file changes on disk. The client side uses LoadRoots and
// ClientConfig to trust additional CA bundles on top of the system pool.
package tlsroots
