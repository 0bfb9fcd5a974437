package fuzztests

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 1 << 16
)

var languageSeeds = []string{
	"int main(void){return 2+2;}",
	"int f(){x=1;}",
	"int main(void){int a=1; int b=a*3-4/2; return a<b && b!=0 ? a : -b;}",
	"static long counter; long next(void){return ++counter;}",
	"extern int g; int read(void){return g;}",
	"double half(double x){return x/2.0;}",
	"unsigned int mask(unsigned int x){return x & 0xffu | x << 3 ^ ~x;}",
	"int loop(int n){int s=0; for(int i=0;i<n;i=i+1){if(i%2)continue; s+=i;} return s;}",
	"int w(int n){while(n>10){n-=3;} do{n++;}while(n<5); return n;}",
	"int sw(int x){switch(x){case 1: return 10; case 2: x=x+1; break; case 3: return 30;} return x;}",
	"int sw(int x){switch(x){case 0: default: return 1;}}",
	"int g(int a,int b,int c,int d,int e,int f,int h,int i){return a+b+c+d+e+f+h+i;}",
	"int caller(void){return g(1,2,3,4,5,6,7,8);}",
	"int jump(void){goto done; done: return 0;}",
	"int div(int x){return x/0;}",
	"char c = 'a'; int s(void){return c;}",
	"int main(void){ /* unterminated",
	"int main(void){return 1",
	"int )( ;;; {{",
	"int x = 18446744073709551616;",
	"int f(void){ { { { return 0; } } } }",
}

func addCorpusSeeds(f *testing.F) {
	for _, seed := range languageSeeds {
		f.Add([]byte(seed))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every .c file under testdata directories of the
// repository.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || !strings.HasSuffix(path, ".c") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil || len(data) > maxSeedBytes || bytes.IndexByte(data, 0) >= 0 {
			return nil
		}
		f.Add(data)
		return nil
	})
	if err != nil {
		f.Fatalf("walk testdata: %v", err)
	}
}

func clip(input []byte) string {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return string(input)
}
