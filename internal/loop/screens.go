package loop

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/rollrun/internal/hud"
	hostcfg "github.com/tomz197/rollrun/internal/loop/config"
)

// drawLeaderboard lists the board's best scores in the top right corner.
func (c *Client) drawLeaderboard(width int) {
	if len(c.state.leaders) == 0 {
		return
	}
	rows := []string{"TOP SCORES"}
	for i, e := range c.state.leaders {
		rows = append(rows, fmt.Sprintf("%d. %-*s %5d", i+1, hostcfg.MaxUsernameLength, e.Username, e.Score))
	}
	block := lipgloss.JoinVertical(lipgloss.Right, rows...)
	col := width - lipgloss.Width(block)
	for i, line := range strings.Split(block, "\n") {
		hud.Text{Col: col, Row: 1 + i, Value: line}.Draw(c.cw)
	}
}

// drawInactivityScreen warns an idle player before the disconnect.
func (c *Client) drawInactivityScreen(now time.Time) {
	left := int(hostcfg.InactivityDisconnectUser - now.Sub(c.state.lastInput).Seconds())
	c.drawNotice("INACTIVITY WARNING",
		fmt.Sprintf("Disconnecting in %d seconds.", left),
		"Press any key to continue")
}

// drawShutdownScreen counts down to the disconnect after a board shutdown.
func (c *Client) drawShutdownScreen(now time.Time) {
	left := int(hostcfg.ShutdownDisplaySeconds-now.Sub(c.state.shutdownAt).Seconds()) + 1
	c.drawNotice("SERVER SHUTTING DOWN",
		"The server is restarting.",
		"Please reconnect in a moment.",
		fmt.Sprintf("Disconnecting in %2d seconds", left),
		"Press Q to disconnect now")
}

func (c *Client) drawNotice(title string, lines ...string) {
	canvas := c.renderer.Canvas()
	hud.Centred(c.cw, c.hud.Notice(title, lines...), canvas.TerminalWidth(), canvas.TerminalHeight())
}
