package terminal

import (
	"bytes"
	"testing"

	. "github.com/onsi/gomega"
)

func TestANSI(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	d := &ANSI{Writer: &buf}
	g.Expect(d.Clear()).To(Succeed())
	g.Expect(buf.String()).To(Equal("\033[2J\033[H"))

	buf.Reset()
	g.Expect(d.ShowCursor(false)).To(Succeed())
	g.Expect(d.ShowCursor(true)).To(Succeed())
	g.Expect(buf.String()).To(Equal("\033[?25l\033[?12l\033[?25h"))
}

func TestClearCommandByPlatform(t *testing.T) {
	g := NewWithT(t)

	name, args := clearCommand("windows")
	g.Expect(name).To(Equal("cmd"))
	g.Expect(args).To(Equal([]string{"/c", "cls"}))

	name, args = clearCommand("linux")
	g.Expect(name).To(Equal("clear"))
	g.Expect(args).To(BeEmpty())

	name, _ = clearCommand("darwin")
	g.Expect(name).To(Equal("clear"))
}

func TestNew(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	d, err := New("ansi", &buf)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d).To(BeAssignableToTypeOf(&ANSI{}))

	d, err = New("command", &buf)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d).To(BeAssignableToTypeOf(&Command{}))

	d, err = New("", &buf)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d).NotTo(BeNil())

	_, err = New("curses", &buf)
	g.Expect(err).To(MatchError(ContainSubstring("unknown display")))
}
