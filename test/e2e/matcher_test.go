package e2e

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
)

func writeFile(path, content string) {
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
}

func readRows(path string) [][]string {
	f, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	Expect(err).NotTo(HaveOccurred())
	return rows
}

var _ = Describe("session-matcher", Ordered, func() {
	var (
		dir      string
		sessions string
		students string
	)

	BeforeAll(func() {
		dir = GinkgoT().TempDir()
		sessions = tempPath(dir, "sessions.csv")
		students = tempPath(dir, "students.csv")

		var b strings.Builder
		b.WriteString("CLASSNAME,NUM_SPACES\n")
		for i := 0; i < 12; i++ {
			fmt.Fprintf(&b, "Session%02d,%d\n", i, 10+i%5*5)
		}
		writeFile(sessions, b.String())

		b.Reset()
		b.WriteString("SID,GRADE\n")
		for i := 0; i < 300; i++ {
			fmt.Fprintf(&b, "S%03d,%d\n", i, 9+i%4)
		}
		raw := tempPath(dir, "raw.csv")
		writeFile(raw, b.String())

		By("generating random choices")
		session := run("generate", sessions, raw, students, "--choices=5", "--seed=7")
		Expect(session).To(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say("Generated choices for 300 students"))
	})

	It("should write one row per student", func() {
		out := tempPath(dir, "plain.csv")
		session := run("match", sessions, students, out, "--seed=11", "-n", "5")
		Expect(session).To(gexec.Exit(0))

		rows := readRows(out)
		Expect(rows[0]).To(Equal([]string{"SID", "Ticket Type"}))
		Expect(rows).To(HaveLen(301))
		seen := map[string]bool{}
		for _, row := range rows[1:] {
			Expect(seen[row[0]]).To(BeFalse(), "student %s written twice", row[0])
			seen[row[0]] = true
		}
	})

	It("should produce the same file with the parallel strategy", func() {
		seq := tempPath(dir, "seq.csv")
		par := tempPath(dir, "par.csv")
		Expect(run("match", sessions, students, seq, "--seed=21", "-n", "8")).To(gexec.Exit(0))
		Expect(run("match", sessions, students, par, "--seed=21", "-n", "8",
			"--strategy=parallel", "--parallelism=3")).To(gexec.Exit(0))

		seqData, err := os.ReadFile(seq)
		Expect(err).NotTo(HaveOccurred())
		parData, err := os.ReadFile(par)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(parData)).To(Equal(string(seqData)))
	})

	It("should place students identically when pre-seeding covers every choice", func() {
		plain := tempPath(dir, "nopresort.csv")
		seeded := tempPath(dir, "presort.csv")
		Expect(run("match", sessions, students, plain, "--seed=3", "-n", "4")).To(gexec.Exit(0))
		Expect(run("match", sessions, students, seeded, "--seed=3", "-n", "4", "--presort=5")).To(gexec.Exit(0))

		Expect(readRows(seeded)).To(ConsistOf(readRows(plain)))
	})

	It("should refuse to overwrite without --force", func() {
		out := tempPath(dir, "guarded.csv")
		writeFile(out, "keep\n")

		session := run("match", sessions, students, out)
		Expect(session).To(gexec.Exit(1))
		Expect(session.Err).To(gbytes.Say("already exists"))

		Expect(run("match", sessions, students, out, "--force")).To(gexec.Exit(0))
		Expect(readRows(out)).To(HaveLen(301))
	})

	It("should archive runs and list them", func() {
		dsn := "sqlite://" + tempPath(dir, "runs.db")
		out := tempPath(dir, "archived.csv")
		Expect(run("match", sessions, students, out, "--archive="+dsn, "--seed=9")).To(gexec.Exit(0))

		session := run("history", "--archive="+dsn)
		Expect(session).To(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say("RUN ID"))
		Expect(session.Out).To(gbytes.Say("sequential"))
	})

	It("should write the report and metrics", func() {
		out := tempPath(dir, "report.csv")
		metrics := tempPath(dir, "matcher.prom")
		session := run("match", sessions, students, out, "-v", "--report-format=yaml",
			"--metrics-file="+metrics, "-n", "3")
		Expect(session).To(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say("tallies:"))

		data, err := os.ReadFile(metrics)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("session_matcher_trials_total 3"))
	})
})

var _ = Describe("session-matcher numeric mode", func() {
	It("should canonicalize and sort integer session names", func() {
		dir := GinkgoT().TempDir()
		sessions := tempPath(dir, "sessions.csv")
		students := tempPath(dir, "students.csv")
		out := tempPath(dir, "out.csv")
		writeFile(sessions, "10,1\n02,1\n1,1\n")
		writeFile(students, "a,12,010\nb,11,2\nc,10,001\n")

		Expect(run("match", sessions, students, out, "--numeric")).To(gexec.Exit(0))
		Expect(readRows(out)).To(Equal([][]string{
			{"SID", "Ticket Type"},
			{"c", "1"},
			{"b", "2"},
			{"a", "10"},
		}))
	})
})
