// Package backends normalizes the exclusion and rule state of individual
// security products into the shared audit data model.
//
// It exposes the Backend contract implemented by the Windows Defender,
// Bitdefender, Windows firewall, and Linux firewall backends, plus the
// optional ExclusionMutator capability for products that support automated
// exclusion changes.
package backends
