// Package credentials resolves SSH credentials for device sessions.
// Injection is via environment variables (CRED_N_USER/CRED_N_PASS, §4.3,
// §6) so credentials never touch the inventory file or the database.
package credentials

import (
	"fmt"
	"os"

	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
)

// FromEnv reads the nth credential pair (1-indexed, matching a job's
// cred_index parameter) from CRED_<n>_USER / CRED_<n>_PASS. ok is false when
// either variable is unset or empty.
func FromEnv(n int) (sshclient.Credentials, bool) {
	user := os.Getenv(fmt.Sprintf("CRED_%d_USER", n))
	pass := os.Getenv(fmt.Sprintf("CRED_%d_PASS", n))
	if user == "" || pass == "" {
		return sshclient.Credentials{}, false
	}
	return sshclient.Credentials{Username: user, Password: pass}, true
}

// All resolves every CRED_N_USER/CRED_N_PASS pair from 1 up to the first
// gap, for callers that try a list of credential sets against a device
// until one authenticates (§4.2/§4.3).
func All() []sshclient.Credentials {
	var out []sshclient.Credentials
	for i := 1; ; i++ {
		creds, ok := FromEnv(i)
		if !ok {
			break
		}
		out = append(out, creds)
	}
	return out
}
