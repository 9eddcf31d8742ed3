// bview is a simple CLI tool for browsing flat kv files.
//
// Usage:
//
//	bview <filename>            # interactive mode
//	bview -l <filename>         # list mode (print all)
//	bview -l -n 20 <filename>   # list first 20 items
//	bview -demo <filename>      # seed with fake records first
//
// Interactive mode:
//
//	j/↓    scroll down
//	k/↑    scroll up
//	g      jump to first
//	G      jump to last
//	/      search key (prefix match)
//	q/Esc  quit
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dacapoday/flat/kv"
	"github.com/fatih/color"
	"github.com/go-faker/faker/v4"
	"golang.org/x/term"
)

var (
	title  = color.New(color.Bold, color.FgGreen)
	keyHue = color.New(color.FgCyan)
	dim    = color.New(color.Faint)
)

func main() {
	listFlag := flag.Bool("l", false, "list mode (non-interactive)")
	countFlag := flag.Int("n", 0, "number of items (0 = all)")
	demoFlag := flag.Bool("demo", false, "seed the file with records created with go-faker")
	recordsFlag := flag.Int("records", 1000, "amount of records to seed in demo mode")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: bview [-l] [-n count] [-demo] <filename>")
		os.Exit(1)
	}

	db, err := kv.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if *demoFlag {
		if err := seed(db, *recordsFlag); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	if *listFlag {
		runList(db, *countFlag)
		return
	}

	runInteractive(db)
}

func seed(db *kv.DB, count int) error {
	for range count {
		k := []byte(faker.Word() + "-" + faker.Word())
		v := []byte(faker.Sentence())
		if err := db.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func runList(db *kv.DB, count int) {
	n := 0
	it := db.Iter()
	for ; it.Valid(); it.Next() {
		if count > 0 && n >= count {
			break
		}
		fmt.Printf("%s: %s\n", keyHue.Sprint(display(it.Key(), 40)), display(it.Val(), 60))
		n++
	}
	if err := it.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runInteractive(db *kv.DB) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	v := &viewer{db: db}
	v.updateSize()
	v.first()

	fmt.Print("\033[?25l\033[2J") // hide cursor, clear screen once
	defer fmt.Print("\033[?25h\033[2J\033[H") // show cursor, clear screen

	reader := bufio.NewReader(os.Stdin)

	for {
		// update terminal size on each render
		if v.updateSize() {
			v.first()
		}
		v.render()

		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		v.status = "" // clear status on any input

		switch b {
		case 'q', 3, 27: // q, Ctrl+C, Esc
			if b == 27 && reader.Buffered() > 0 {
				// escape sequence
				b2, _ := reader.ReadByte()
				if b2 == '[' {
					b3, _ := reader.ReadByte()
					switch b3 {
					case 'A': // up
						v.up()
					case 'B': // down
						v.down()
					case '5': // page up
						reader.ReadByte()
						v.pageUp()
					case '6': // page down
						reader.ReadByte()
						v.pageDown()
					}
				}
				continue
			}
			return
		case 'j':
			v.down()
		case 'k':
			v.up()
		case 'g':
			v.first()
		case 'G':
			v.last()
		case '/':
			v.search(reader)
		}
	}
}

type item struct {
	key, val []byte
}

// viewer keeps a screenful of entries. The store only hands out forward
// cursors, so scrolling down continues past the last visible key and
// scrolling up asks for the predecessor of the first one.
type viewer struct {
	db      *kv.DB
	items   []item
	width   int
	height  int
	atStart bool // no more items before first
	atEnd   bool // no more items after last
	status  string
}

// updateSize checks terminal size and returns true if changed.
func (v *viewer) updateSize() bool {
	w, h, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		w, h = 80, 24
	}
	if w == v.width && h == v.height {
		return false
	}
	v.width, v.height = w, h
	return true
}

func (v *viewer) lines() int {
	return v.height - 4 // title + separator + separator + status
}

func take(it *kv.Iter) item {
	return item{
		key: bytes.Clone(it.Key()),
		val: bytes.Clone(it.Val()),
	}
}

// load fills the window scanning forward from lower.
func (v *viewer) load(lower kv.Bound) {
	v.items = v.items[:0]
	v.atEnd = true

	it := v.db.Range(lower, kv.Unbounded())
	for ; it.Valid(); it.Next() {
		if len(v.items) >= v.lines() {
			v.atEnd = false
			break
		}
		v.items = append(v.items, take(it))
	}
	v.syncStart()
}

// syncStart probes for a predecessor of the first visible key.
func (v *viewer) syncStart() {
	if len(v.items) == 0 {
		v.atStart = true
		v.atEnd = true
		return
	}
	v.atStart = !v.db.IterUpperBound(v.items[0].key).Valid()
}

func (v *viewer) down() {
	if v.atEnd || len(v.items) == 0 {
		return
	}

	last := v.items[len(v.items)-1].key
	it := v.db.Range(kv.Exclude(last), kv.Unbounded())
	if !it.Valid() {
		v.atEnd = true
		return
	}

	v.items = append(v.items[1:], take(it))
	v.atEnd = !it.Next()
	v.syncStart()
}

func (v *viewer) up() {
	if v.atStart || len(v.items) == 0 {
		return
	}

	it := v.db.IterUpperBound(v.items[0].key)
	if !it.Valid() {
		v.atStart = true
		return
	}

	v.items = append([]item{take(it)}, v.items...)
	if len(v.items) > v.lines() {
		v.items = v.items[:v.lines()]
		v.atEnd = false
	}
	v.syncStart()
}

func (v *viewer) pageDown() {
	for range v.lines() - 1 {
		v.down()
	}
}

func (v *viewer) pageUp() {
	for range v.lines() - 1 {
		v.up()
	}
}

func (v *viewer) first() {
	v.load(kv.Unbounded())
}

func (v *viewer) last() {
	v.items = v.items[:0]

	key, val, err := v.db.Last()
	if err != nil || key == nil {
		v.atStart = true
		v.atEnd = true
		return
	}

	// walk predecessors until the screen is full, then flip
	v.items = append(v.items, item{key: key, val: val})
	for len(v.items) < v.lines() {
		it := v.db.IterUpperBound(v.items[len(v.items)-1].key)
		if !it.Valid() {
			break
		}
		v.items = append(v.items, take(it))
	}
	slices.Reverse(v.items)

	v.atEnd = true
	v.syncStart()
}

func (v *viewer) search(reader *bufio.Reader) {
	// show search prompt
	fmt.Print("\033[?25h") // show cursor
	fmt.Printf("\033[%d;1H\033[K/", v.height)

	// read search input
	var input []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		if b == 27 || b == 3 { // Esc or Ctrl+C
			fmt.Print("\033[?25l")
			v.status = ""
			return
		}
		if b == 13 || b == 10 { // Enter
			break
		}
		if b == 127 || b == 8 { // Backspace
			if len(input) > 0 {
				input = input[:len(input)-1]
				fmt.Print("\b \b")
			}
			continue
		}
		if b >= 32 && b < 127 {
			input = append(input, b)
			fmt.Print(string(b))
		}
	}
	fmt.Print("\033[?25l")

	if len(input) == 0 {
		v.status = ""
		return
	}

	// jump to the first key at or after the input
	if v.db.Range(kv.Include(input), kv.Unbounded()).Valid() {
		v.load(kv.Include(input))
		v.status = fmt.Sprintf("jumped to: %s", display(input, 20))
	} else {
		v.status = "not found"
	}
}

func (v *viewer) render() {
	var b strings.Builder

	// move to top (no clear)
	b.WriteString("\033[H")

	// header
	b.WriteString(title.Sprint("[ bview ]"))
	fmt.Fprintf(&b, " %s", dim.Sprintf("%d items", v.db.Len()))
	b.WriteString("\033[K\r\n")
	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	// items
	keyWidth := 32
	valWidth := max(v.width-keyWidth-4, 20)

	for i := range v.lines() {
		if i < len(v.items) {
			it := v.items[i]
			b.WriteString(keyHue.Sprint(display(it.key, keyWidth)))
			b.WriteString(": ")
			b.WriteString(display(it.val, valWidth))
		} else {
			b.WriteString(dim.Sprint("~"))
		}
		b.WriteString("\033[K\r\n")
	}

	// footer
	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	// status line
	pos := ""
	if v.atStart && v.atEnd {
		pos = "[all]"
	} else if v.atStart {
		pos = "[top]"
	} else if v.atEnd {
		pos = "[end]"
	}

	if v.status != "" {
		b.WriteString(" ")
		b.WriteString(v.status)
		b.WriteString(" ")
		b.WriteString(pos)
	} else {
		b.WriteString(dim.Sprint(" j/k:scroll g/G:jump /:search q:quit "))
		b.WriteString(pos)
	}
	b.WriteString("\033[K")

	fmt.Print(b.String())
}

// display formats bytes for display, truncating if needed.
// Tries to show as string if printable, otherwise hex.
func display(b []byte, maxLen int) string {
	if len(b) == 0 {
		return "(empty)"
	}

	// check if printable UTF-8
	if utf8.Valid(b) && isPrintable(b) {
		runes := []rune(string(b))
		if len(runes) > maxLen-3 {
			return string(runes[:maxLen-3]) + "..."
		}
		return string(runes)
	}

	// show as hex
	hex := fmt.Sprintf("%x", b)
	if len(hex) > maxLen-3 {
		return hex[:maxLen-3] + "..."
	}
	return hex
}

func isPrintable(b []byte) bool {
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
