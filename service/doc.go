// Package service wires registry, connection, event, and monitor into
// the API an application actually calls: create or open a named
// publish-subscribe or event service, then build publishers,
// subscribers, notifiers, and listeners against it. Grounded on
// spec.md §4.H/§4.G's port-creation protocols and the end-to-end
// scenarios in §8.
package service
