package tool

// Catalog lists every concrete tool descriptor the registry (C8) discovers
// at startup. allowIntrusive gates nmap's vuln/exploit/intrusive/brute
// script categories.
func Catalog(allowIntrusive bool) []Descriptor {
	return []Descriptor{
		NetworkScanner(allowIntrusive),
		ContentBruteForcer(),
		CredentialTester(),
		SQLiTester(),
	}
}
