// Package kit defines the capability surface ("agent kit") that tools and
// actions delegate to: faucet requests, flash trades and Allora inference
// queries. Concrete kits live in sub-packages; the rpcbridge kit forwards every
// call to an external gateway that owns wallets, signing and chain access.
package kit
