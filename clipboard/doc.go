// Package clipboard copies text to the system clipboard using the
// platform's command-line clipboard tool.
package clipboard
