/*
Package ports defines the driven ports (interfaces) of the titration engine.

These interfaces decouple the engine from where its clinical policy lives,
so the same engine can be fed from a local file, a document repository or a
shared key-value store.

# Key Interfaces

  - PolicySource: loads a validated Policy (file, Loam, Redis).
  - PolicyPublisher: stores a validated Policy so other processes can load it.
*/
package ports
